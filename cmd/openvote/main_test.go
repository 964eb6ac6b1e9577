package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/privacybydesign/openvote"
	"github.com/privacybydesign/openvote/group"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "openvote.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
timeout = "45s"
log_level = "warn"

[group]
modulus = "3FB"   # 1019
generator = 2
`)
	conf, err := loadConfig(path)
	require.NoError(t, err)

	g, err := conf.buildGroup()
	require.NoError(t, err)
	assert.Equal(t, int64(1019), g.P.Int64())
	assert.Equal(t, int64(2), g.G.Int64())

	d, err := conf.roundTimeout(0)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, d)
	d, err = conf.roundTimeout(time.Second)
	require.NoError(t, err)
	assert.Equal(t, time.Second, d)

	level, err := conf.logLevel(false)
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, level)
	level, err = conf.logLevel(true)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, level)
}

func TestDefaultConfig(t *testing.T) {
	conf, err := loadConfig("")
	require.NoError(t, err)
	g, err := conf.buildGroup()
	require.NoError(t, err)
	assert.Same(t, group.Default(), g)
	d, err := conf.roundTimeout(0)
	require.NoError(t, err)
	assert.Zero(t, d)
	level, err := conf.logLevel(false)
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, level)
}

func TestBadConfig(t *testing.T) {
	_, err := loadConfig(writeConfig(t, `timeout = `))
	assert.Error(t, err, "syntax error")

	_, err = loadConfig(writeConfig(t, `colour = "blue"`))
	assert.Error(t, err, "unknown key")

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	conf, err := loadConfig(writeConfig(t, "[group]\nmodulus = \"xyz\"\n"))
	require.NoError(t, err)
	_, err = conf.buildGroup()
	assert.Error(t, err)

	conf, err = loadConfig(writeConfig(t, "[group]\nmodulus = \"3FC\"\n"))
	require.NoError(t, err)
	_, err = conf.buildGroup()
	assert.ErrorIs(t, err, group.ErrNotPrime)

	conf, err = loadConfig(writeConfig(t, "timeout = \"soon\"\n"))
	require.NoError(t, err)
	_, err = conf.roundTimeout(0)
	assert.Error(t, err)
}

func TestParseVotes(t *testing.T) {
	votes, err := parseVotes("1, 0,1")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 1}, votes)

	_, err = parseVotes("")
	assert.Error(t, err)
	_, err = parseVotes("1,yes")
	assert.Error(t, err)
}

func TestParseSession(t *testing.T) {
	id := uuid.New()
	parsed, err := parseSession(id.String(), true)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = parseSession("", true)
	assert.Error(t, err)
	generated, err := parseSession("", false)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, generated)
	_, err = parseSession("not-a-uuid", false)
	assert.Error(t, err)
}

func TestRunSimulation(t *testing.T) {
	for _, pipes := range []bool{false, true} {
		cfg := openvote.Config{SessionID: uuid.New(), RoundTimeout: 30 * time.Second}
		reports, err := runSimulation(context.Background(), cfg, []int{1, 0, 1, 1}, pipes)
		require.NoError(t, err, "pipes: %v", pipes)
		require.Len(t, reports, 4)
		for i, r := range reports {
			assert.Equal(t, i+1, r.Voter)
			assert.Equal(t, 3, r.Tally)
			assert.Equal(t, 4, r.Voters)
			assert.Equal(t, reports[0].Transcript, r.Transcript)
		}
	}
}

func TestRunSimulationInvalidVote(t *testing.T) {
	cfg := openvote.Config{SessionID: uuid.New()}
	_, err := runSimulation(context.Background(), cfg, []int{1, 2}, false)
	assert.ErrorIs(t, err, openvote.ErrInvalidParameters)
}
