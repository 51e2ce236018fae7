package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

func TestParseStates_CanonicalVocabulary(t *testing.T) {
	v, err := ParseVolumeState("in-use")
	require.NoError(t, err)
	assert.Equal(t, VolumeInUse, v)

	i, err := ParseInstanceState("rebooting")
	require.NoError(t, err)
	assert.Equal(t, InstanceRebooting, i)

	s, err := ParseSnapshotState("available")
	require.NoError(t, err)
	assert.Equal(t, SnapshotAvailable, s)

	m, err := ParseMachineImageState("pending")
	require.NoError(t, err)
	assert.Equal(t, MachineImagePending, m)
}

func TestParseStates_RejectsUnknownStrings(t *testing.T) {
	tests := []struct {
		name  string
		parse func() error
	}{
		{"volume uses backend spelling", func() error { _, err := ParseVolumeState("in_use"); return err }},
		{"volume upper case", func() error { _, err := ParseVolumeState("AVAILABLE"); return err }},
		{"snapshot has no deleted state", func() error { _, err := ParseSnapshotState("deleted"); return err }},
		{"instance empty", func() error { _, err := ParseInstanceState(""); return err }},
		{"image garbage", func() error { _, err := ParseMachineImageState("ready-ish"); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.parse()
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.CodeStateMapping))
		})
	}
}

func TestMapState_FailsLoudlyOnUnmapped(t *testing.T) {
	table := map[string]VolumeState{"creating": VolumeCreating, "in-use": VolumeInUse}

	got, err := MapState(KindVolume, "test", table, "in-use")
	require.NoError(t, err)
	assert.Equal(t, VolumeInUse, got)

	got, err = MapState(KindVolume, "test", table, "optimizing")
	require.Error(t, err)
	assert.Equal(t, VolumeState(""), got)
	assert.True(t, apperrors.Is(err, apperrors.CodeStateMapping))
	assert.Contains(t, err.Error(), `"optimizing"`)
}

func TestReadinessTables(t *testing.T) {
	for _, s := range VolumeReadiness.Ready {
		assert.True(t, s.IsValid())
	}
	assert.Equal(t, []InstanceState{InstanceError, InstanceTerminated}, InstanceReadiness.Errors)
	assert.Equal(t, []VolumeState{VolumeDeleted, VolumeUnknown}, VolumeReadiness.Deleted)
	assert.Equal(t, []SnapshotState{SnapshotUnknown}, SnapshotReadiness.Deleted)
	assert.Equal(t, MachineImageUnknown, MachineImageReadiness.Unknown)
}

func TestSecurityGroupRule_Validate(t *testing.T) {
	assert.NoError(t, SecurityGroupRule{Protocol: "tcp", FromPort: 22, ToPort: 22, CIDR: "10.0.0.0/8"}.Validate())
	assert.NoError(t, SecurityGroupRule{SourceGroupID: "sg-1"}.Validate())

	both := SecurityGroupRule{Protocol: "tcp", FromPort: 22, ToPort: 22, CIDR: "0.0.0.0/0", SourceGroupID: "sg-1"}
	assert.True(t, apperrors.Is(both.Validate(), apperrors.CodeInvalidArgument))
	assert.Error(t, SecurityGroupRule{Protocol: "tcp"}.Validate())
	assert.Error(t, SecurityGroupRule{Protocol: "tcp", CIDR: "not-a-cidr"}.Validate())
	assert.Error(t, SecurityGroupRule{Protocol: "sctp", CIDR: "10.0.0.0/8"}.Validate())
	assert.Error(t, SecurityGroupRule{Protocol: "udp", FromPort: 90, ToPort: 80, CIDR: "10.0.0.0/8"}.Validate())
}

func TestVolumeSpec_Validate(t *testing.T) {
	assert.NoError(t, VolumeSpec{SizeGiB: 1, Zone: "z1"}.Validate())
	assert.NoError(t, VolumeSpec{SnapshotID: "snap-1", Zone: "z1"}.Validate())
	assert.Error(t, VolumeSpec{SizeGiB: 1}.Validate())
	assert.Error(t, VolumeSpec{Zone: "z1"}.Validate())
}
