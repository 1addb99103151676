package showcapture

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/mdouchement/tenmactl/capture"
	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	var (
		filter    capture.Filter
		direction string
		raw       bool
	)

	cmd := &cobra.Command{
		Use:   "show-capture FILE",
		Short: "Print the exchanges recorded in a capture file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if direction != "" {
				d, err := parseDirection(direction)
				if err != nil {
					return err
				}
				filter.Direction = &d
			}

			r, err := capture.NewReader(args[0], filter)
			if err != nil {
				return err
			}
			defer r.Close()

			events, err := r.All()
			for _, e := range events {
				fmt.Println(format(e, raw))
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&filter.SessionID, "session", "s", "", "Only show this session")
	cmd.Flags().StringVarP(&filter.Port, "device", "", "", "Only show this serial port")
	cmd.Flags().StringVarP(&direction, "direction", "d", "", "Only show out, in or error events")
	cmd.Flags().BoolVarP(&raw, "hex", "x", false, "Print data as hexadecimal")

	return cmd
}

func parseDirection(s string) (capture.Direction, error) {
	switch strings.ToLower(s) {
	case "out", ">>":
		return capture.DirectionOut, nil
	case "in", "<<":
		return capture.DirectionIn, nil
	case "error", "!!":
		return capture.DirectionError, nil
	default:
		return 0, fmt.Errorf("invalid direction %s, expected out, in or error", strconv.Quote(s))
	}
}

func format(e capture.Event, raw bool) string {
	session := e.SessionID
	if len(session) > 8 {
		session = session[:8]
	}

	var data string
	switch {
	case e.Direction == capture.DirectionError:
		data = e.Error
	case raw:
		data = hex.EncodeToString(e.Data)
	default:
		data = strconv.Quote(string(e.Data))
	}

	return fmt.Sprintf("%s [%s] %s %s %s", e.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"), session, e.Port, e.Direction, data)
}
