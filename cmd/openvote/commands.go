package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-errors/errors"
	"github.com/google/uuid"
	"github.com/privacybydesign/openvote"
	"github.com/privacybydesign/openvote/transport"
	"golang.org/x/sync/errgroup"
	"gopkg.in/urfave/cli.v1"
)

type report struct {
	Voter      int    `json:"voter,omitempty"`
	Tally      int    `json:"tally"`
	Voters     int    `json:"voters"`
	Transcript string `json:"transcript"`
}

func newReport(index int, res *openvote.Result) *report {
	return &report{
		Voter:      index,
		Tally:      res.Tally,
		Voters:     res.Voters,
		Transcript: res.Transcript.B58String(),
	}
}

func sessionConfig(c *cli.Context, session uuid.UUID) (openvote.Config, error) {
	conf, err := loadConfig(c.GlobalString("config"))
	if err != nil {
		return openvote.Config{}, err
	}
	g, err := conf.buildGroup()
	if err != nil {
		return openvote.Config{}, err
	}
	timeout, err := conf.roundTimeout(c.GlobalDuration("timeout"))
	if err != nil {
		return openvote.Config{}, err
	}
	return openvote.Config{
		Group:        g,
		SessionID:    session,
		RoundTimeout: timeout,
	}, nil
}

func parseSession(s string, required bool) (uuid.UUID, error) {
	if s == "" {
		if required {
			return uuid.Nil, errors.New("--session is required")
		}
		return uuid.New(), nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errors.WrapPrefix(err, "invalid session id", 0)
	}
	return id, nil
}

func parseVotes(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("--votes is required")
	}
	var votes []int
	for _, f := range strings.Split(s, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, errors.WrapPrefix(err, "invalid vote", 0)
		}
		votes = append(votes, v)
	}
	return votes, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func vote(c *cli.Context) error {
	session, err := parseSession(c.String("session"), true)
	if err != nil {
		return err
	}
	cfg, err := sessionConfig(c, session)
	if err != nil {
		return err
	}
	params := openvote.SessionParams{
		Vote:   c.Int("value"),
		Index:  c.Int("index"),
		Voters: c.Int("voters"),
	}
	stream := transport.NewStream(session, os.Stdin, os.Stdout)
	voter, err := openvote.NewVoter(cfg, params, stream)
	if err != nil {
		return err
	}
	res, err := voter.Run(context.Background())
	if err != nil {
		return err
	}
	// stdout carries the protocol
	return writeJSON(os.Stderr, newReport(params.Index, res))
}

func simulate(c *cli.Context) error {
	votes, err := parseVotes(c.String("votes"))
	if err != nil {
		return err
	}
	session, err := parseSession(c.String("session"), false)
	if err != nil {
		return err
	}
	cfg, err := sessionConfig(c, session)
	if err != nil {
		return err
	}
	reports, err := runSimulation(context.Background(), cfg, votes, c.Bool("pipes"))
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, reports)
}

// runSimulation runs one voter per vote concurrently and returns the report of
// every voter, or the error of the first voter that failed.
func runSimulation(ctx context.Context, cfg openvote.Config, votes []int, pipes bool) ([]*report, error) {
	n := len(votes)
	transports := make([]openvote.Transport, n)
	if pipes {
		nw, err := transport.NewNetwork(ctx, cfg.SessionID, n)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := nw.Close(); err != nil {
				openvote.Logger.WithError(err).Warn("relay stopped with error")
			}
		}()
		for i := range transports {
			if transports[i], err = nw.Stream(i + 1); err != nil {
				return nil, err
			}
		}
	} else {
		hub := transport.NewHub(cfg.SessionID, n)
		defer hub.Close()
		for i := range transports {
			ep, err := hub.Endpoint(i + 1)
			if err != nil {
				return nil, err
			}
			transports[i] = ep
		}
	}

	voters := make([]*openvote.Voter, n)
	for i, v := range votes {
		voter, err := openvote.NewVoter(cfg, openvote.SessionParams{Vote: v, Index: i + 1, Voters: n}, transports[i])
		if err != nil {
			return nil, err
		}
		voters[i] = voter
	}

	// The first failure cancels the remaining voters
	reports := make([]*report, n)
	eg, ctx := errgroup.WithContext(ctx)
	for i := range voters {
		i := i
		eg.Go(func() error {
			res, err := voters[i].Run(ctx)
			if err != nil {
				return errors.WrapPrefix(err, fmt.Sprintf("voter %d", i+1), 0)
			}
			reports[i] = newReport(i+1, res)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
