// Command openvote runs anonymous two-round yes/no votes.
//
// A single voter speaks the line protocol on standard input and output:
//
//	openvote vote --session <uuid> --index 2 --voters 3 --value 1
//
// and a whole session can be simulated in one process:
//
//	openvote simulate --votes 1,0,1 [--pipes]
package main

import (
	"os"

	"github.com/privacybydesign/openvote"
	"gopkg.in/urfave/cli.v1"
)

var cmds = cli.Commands{
	{
		Name:    "vote",
		Usage:   "take part in a session over standard input and output",
		Aliases: []string{"v"},
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "session, s",
				Usage: "the session id shared by all voters",
			},
			cli.IntFlag{
				Name:  "index, i",
				Usage: "our voter index, in [1, voters]",
			},
			cli.IntFlag{
				Name:  "voters, n",
				Usage: "the number of voters in the session",
			},
			cli.IntFlag{
				Name:  "value",
				Usage: "our vote, 0 or 1",
			},
		},
		Action: vote,
	},
	{
		Name:    "simulate",
		Usage:   "run a complete session in this process",
		Aliases: []string{"sim"},
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "votes",
				Usage: "comma separated votes, one per voter, e.g. 1,0,1",
			},
			cli.StringFlag{
				Name:  "session, s",
				Usage: "the session id; random when empty",
			},
			cli.BoolFlag{
				Name:  "pipes, p",
				Usage: "connect the voters through a relay over pipes instead of in memory",
			},
		},
		Action: simulate,
	},
}

func newApp() *cli.App {
	cliApp := cli.NewApp()
	cliApp.Name = "openvote"
	cliApp.Usage = "Anonymous two-round yes/no voting."
	cliApp.Version = "0.1"
	cliApp.Commands = cmds
	cliApp.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "debug, d",
			Usage: "log protocol steps",
		},
		cli.StringFlag{
			Name:  "config, c",
			Usage: "path to a TOML config file",
		},
		cli.DurationFlag{
			Name:  "timeout, t",
			Usage: "abort a round that takes longer than this; overrides the config file",
		},
	}
	cliApp.Before = func(c *cli.Context) error {
		conf, err := loadConfig(c.GlobalString("config"))
		if err != nil {
			return err
		}
		level, err := conf.logLevel(c.GlobalBool("debug"))
		if err != nil {
			return err
		}
		openvote.Logger.SetLevel(level)
		// stdout may carry the protocol
		openvote.Logger.SetOutput(os.Stderr)
		return nil
	}
	return cliApp
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		openvote.Logger.Fatal(err)
	}
}
