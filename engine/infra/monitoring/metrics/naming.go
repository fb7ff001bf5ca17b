package metrics

import "strings"

// Prefix is prepended to every metric exported by contentkit.
const Prefix = "contentkit_"

// MetricName returns name with the contentkit prefix applied once.
func MetricName(name string) string {
	if strings.HasPrefix(name, Prefix) {
		return name
	}
	return Prefix + name
}

// MetricNameWithSubsystem returns contentkit_<subsystem>_<name>.
func MetricNameWithSubsystem(subsystem, name string) string {
	if strings.HasPrefix(name, Prefix) {
		return name
	}
	sub := strings.Trim(subsystem, "_")
	switch {
	case sub == "":
		return MetricName(name)
	case name == "":
		return Prefix + sub
	}
	return Prefix + sub + "_" + name
}
