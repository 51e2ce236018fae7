package ec2

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
)

func TestSplitFilterValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty string", input: "", expected: []string{""}},
		{name: "single value", input: "value1", expected: []string{"value1"}},
		{name: "multiple values", input: "value1,value2,value3", expected: []string{"value1", "value2", "value3"}},
		{name: "values with spaces", input: "value1, value2 , value3", expected: []string{"value1", "value2", "value3"}},
		{name: "values with empty parts", input: "value1,,value3", expected: []string{"value1", "value3"}},
		{name: "all empty parts", input: ",,", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitFilterValue(tt.input))
		})
	}
}

func TestBuildInstanceFilters(t *testing.T) {
	live := filter("instance-state-name", "pending", "running", "shutting-down", "stopping", "stopped")

	tests := []struct {
		name     string
		filters  map[string]string
		expected []types.Filter
	}{
		{
			name:     "nil filters",
			filters:  nil,
			expected: []types.Filter{live},
		},
		{
			name:    "tag filter",
			filters: map[string]string{"tag:Environment": "production"},
			expected: []types.Filter{
				{Name: aws.String("tag:Environment"), Values: []string{"production"}},
				live,
			},
		},
		{
			name:    "mapped filters are ordered by key",
			filters: map[string]string{FilterKeyInstanceType: "t3.micro,t3.small", FilterKeyImageID: "ami-12345"},
			expected: []types.Filter{
				{Name: aws.String("image-id"), Values: []string{"ami-12345"}},
				{Name: aws.String("instance-type"), Values: []string{"t3.micro", "t3.small"}},
				live,
			},
		},
		{
			name:    "security groups become one filter each",
			filters: map[string]string{FilterKeySecurityGrp: "sg-123,sg-456"},
			expected: []types.Filter{
				{Name: aws.String("instance.group-id"), Values: []string{"sg-123"}},
				{Name: aws.String("instance.group-id"), Values: []string{"sg-456"}},
				live,
			},
		},
		{
			name:     "explicit state replaces the default",
			filters:  map[string]string{FilterKeyState: "terminated"},
			expected: []types.Filter{{Name: aws.String("instance-state-name"), Values: []string{"terminated"}}},
		},
		{
			name:     "unsupported key",
			filters:  map[string]string{"owner": "me"},
			expected: []types.Filter{live},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildInstanceFilters(tt.filters)
			if diff := cmp.Diff(tt.expected, got, cmpopts.IgnoreUnexported(types.Filter{})); diff != "" {
				t.Errorf("BuildInstanceFilters() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildVolumeFilters(t *testing.T) {
	got := BuildVolumeFilters(map[string]string{
		FilterKeyZone:         "us-east-1a",
		FilterKeyInstanceType: "t3.micro",
		"tag:Team":            "storage",
	})
	want := []types.Filter{
		{Name: aws.String("tag:Team"), Values: []string{"storage"}},
		{Name: aws.String("availability-zone"), Values: []string{"us-east-1a"}},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreUnexported(types.Filter{})); diff != "" {
		t.Errorf("BuildVolumeFilters() mismatch (-want +got):\n%s", diff)
	}
}
