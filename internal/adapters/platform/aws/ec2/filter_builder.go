package ec2

import (
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// Keys accepted in the provider's list filters. Keys starting with TagPrefix
// select on that tag; anything else a resource does not support is ignored.
const (
	TagPrefix             = "tag:"
	FilterKeyName         = "name"
	FilterKeyZone         = "zone"
	FilterKeyImageID      = "image_id"
	FilterKeyInstanceType = "instance_type"
	FilterKeySecurityGrp  = "security_groups"
	FilterKeyState        = "state"
)

const instanceStateFilter = "instance-state-name"

var instanceFilterNames = map[string]string{
	FilterKeyName:         "tag:Name",
	FilterKeyZone:         "availability-zone",
	FilterKeyImageID:      "image-id",
	FilterKeyInstanceType: "instance-type",
	FilterKeyState:        instanceStateFilter,
}

var volumeFilterNames = map[string]string{
	FilterKeyName:  "tag:Name",
	FilterKeyZone:  "availability-zone",
	FilterKeyState: "status",
}

// Terminated instances linger in DescribeInstances for a while; listing
// leaves them out unless a state filter is given.
var liveInstanceStates = []string{"pending", "running", "shutting-down", "stopping", "stopped"}

// BuildInstanceFilters turns generic list filters into DescribeInstances
// filters.
func BuildInstanceFilters(filters map[string]string) []types.Filter {
	out := make([]types.Filter, 0, len(filters)+1)
	stateGiven := false
	for _, key := range sortedKeys(filters) {
		value := filters[key]
		if key == FilterKeySecurityGrp {
			// One filter per group so that instances must be in all of them.
			for _, sgID := range SplitFilterValue(value) {
				out = append(out, filter("instance.group-id", sgID))
			}
			continue
		}
		f, ok := buildFilter(instanceFilterNames, key, value)
		if !ok {
			continue
		}
		if aws.ToString(f.Name) == instanceStateFilter {
			stateGiven = true
		}
		out = append(out, f)
	}
	if !stateGiven {
		out = append(out, filter(instanceStateFilter, liveInstanceStates...))
	}
	return out
}

// BuildVolumeFilters turns generic list filters into DescribeVolumes
// filters.
func BuildVolumeFilters(filters map[string]string) []types.Filter {
	out := make([]types.Filter, 0, len(filters))
	for _, key := range sortedKeys(filters) {
		if f, ok := buildFilter(volumeFilterNames, key, filters[key]); ok {
			out = append(out, f)
		}
	}
	return out
}

func buildFilter(names map[string]string, key, value string) (types.Filter, bool) {
	if strings.HasPrefix(key, TagPrefix) {
		return filter(key, SplitFilterValue(value)...), true
	}
	name, ok := names[key]
	if !ok {
		return types.Filter{}, false
	}
	return filter(name, SplitFilterValue(value)...), true
}

func filter(name string, values ...string) types.Filter {
	return types.Filter{Name: aws.String(name), Values: values}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func SplitFilterValue(value string) []string {
	if !strings.Contains(value, ",") {
		return []string{value}
	}
	parts := strings.Split(value, ",")
	trimmed := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			trimmed = append(trimmed, t)
		}
	}
	return trimmed
}
