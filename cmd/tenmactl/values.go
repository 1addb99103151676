package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mdouchement/tenmactl/tenma"
)

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "1", "true", "enable":
		return true, nil
	case "off", "0", "false", "disable":
		return false, nil
	default:
		return false, fmt.Errorf("invalid switch %s, expected on or off", strconv.Quote(s))
	}
}

func parseTracking(s string) (tenma.TrackingMode, error) {
	switch strings.ToLower(s) {
	case "independent", "0":
		return tenma.TrackingIndependent, nil
	case "series", "1":
		return tenma.TrackingSeries, nil
	case "parallel", "2":
		return tenma.TrackingParallel, nil
	default:
		return 0, fmt.Errorf("invalid tracking mode %s, expected independent, series or parallel", strconv.Quote(s))
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
