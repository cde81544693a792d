package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnsim/dtnsim/pkg/dtnsim/config"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/dtnerr"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/logging"
)

func TestParseExtractsDynamicInterfaceKeys(t *testing.T) {
	yaml := []byte(`
groups:
  - groupID: A
    nrofHosts: 2
    nrofInterfaces: 1
    interface1:
      type: SimpleBroadcastInterface
      transmitSpeed: 1000
      transmitRange: 50
`)
	s, err := config.Parse(yaml)
	require.NoError(t, err)
	require.Len(t, s.Groups, 1)

	ic, ok := s.Groups[0].Interfaces["interface1"]
	require.True(t, ok)
	assert.Equal(t, "SimpleBroadcastInterface", ic.Type)
	assert.Equal(t, 1000, ic.TransmitSpeed)
	assert.Equal(t, 50.0, ic.TransmitRange)
}

func TestParseExtractsDynamicEventsKeys(t *testing.T) {
	yaml := []byte(`
name: test-scenario
Events1:
  class: MessageEventGenerator
  interval: 25
  size: 500
  hosts: A
`)
	s, err := config.Parse(yaml)
	require.NoError(t, err)

	ev, ok := s.Events["Events1"]
	require.True(t, ok)
	assert.Equal(t, "MessageEventGenerator", ev.Class)
	assert.Equal(t, 25.0, ev.Interval)
	assert.Equal(t, 500, ev.Size)
	assert.Equal(t, "A", ev.Hosts)
}

func TestParseExtractsDynamicReportKeys(t *testing.T) {
	yaml := []byte(`
report:
  nrofReports: 1
  report1: MessageStatsReport
`)
	s, err := config.Parse(yaml)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Report.NrofReports)
	assert.Equal(t, "MessageStatsReport", s.Report.Reports["report1"])
}

func validScenarioYAML() []byte {
	return []byte(`
name: two-host
endTime: 100
updateInterval: 1
groups:
  - groupID: A
    movementModel: Static
    router: Epidemic
    nrofHosts: 2
    nrofInterfaces: 1
    bufferSize: 1000
    msgTTL: 60
    cachingStrategy: FIFO
    forwardingStrategy: FIFO
    interface1:
      type: SimpleBroadcastInterface
      transmitSpeed: 1000
      transmitRange: 50
movementModel:
  rngSeed: 42
  worldSize: 200
`)
}

func TestBuildSimulationWiresHostsAndInterfaces(t *testing.T) {
	s, err := config.Parse(validScenarioYAML())
	require.NoError(t, err)

	sim, err := config.BuildSimulation(s, logging.Discard(), nil)
	require.NoError(t, err)

	require.Len(t, sim.Hosts(), 2)

	h0, ok := sim.Host("A0")
	require.True(t, ok)
	require.Len(t, h0.Interfaces(), 1)
	assert.Equal(t, "A0-if1", string(h0.Interfaces()[0].ID))

	_, ok = sim.Host("A1")
	assert.True(t, ok)
}

func TestBuildSimulationRejectsUnknownRouter(t *testing.T) {
	s, err := config.Parse(validScenarioYAML())
	require.NoError(t, err)
	s.Groups[0].Router = "NotARealRouter"

	_, err = config.BuildSimulation(s, logging.Discard(), nil)
	require.Error(t, err)
	var cfgErr *dtnerr.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestBuildSimulationRejectsUnknownCachingStrategy(t *testing.T) {
	s, err := config.Parse(validScenarioYAML())
	require.NoError(t, err)
	s.Groups[0].CachingStrategy = "Bogus"

	_, err = config.BuildSimulation(s, logging.Discard(), nil)
	require.Error(t, err)
	var cfgErr *dtnerr.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestBuildSimulationRejectsMissingInterfaceBlock(t *testing.T) {
	s, err := config.Parse(validScenarioYAML())
	require.NoError(t, err)
	s.Groups[0].NrofInterfaces = 2 // only interface1 is defined

	_, err = config.BuildSimulation(s, logging.Discard(), nil)
	require.Error(t, err)
	var cfgErr *dtnerr.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestBuildSimulationDefaultsUpdateIntervalWhenUnset(t *testing.T) {
	s, err := config.Parse(validScenarioYAML())
	require.NoError(t, err)
	s.UpdateInterval = 0

	sim, err := config.BuildSimulation(s, logging.Discard(), nil)
	require.NoError(t, err)
	require.NoError(t, sim.Tick())
	assert.Equal(t, 1.0, sim.Now(), "updateInterval <= 0 must default to 1")
}
