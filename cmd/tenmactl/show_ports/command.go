package showports

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mdouchement/tenmactl/tenma"
	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"
)

func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "show-ports",
		Short: "List the serial ports, the Tenma ones being flagged",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ports, err := enumerator.GetDetailedPortsList()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Println("No serial port found")
				return nil
			}

			slices.SortFunc(ports, func(a, b *enumerator.PortDetails) int {
				return strings.Compare(a.Name, b.Name)
			})

			for _, p := range ports {
				marker := " "
				if p.IsUSB && p.VID == tenma.USBVendorID && p.PID == tenma.USBProductID {
					marker = "*"
				}
				fmt.Println(marker, tenma.DescribePort(p))
			}
			return nil
		},
	}
}
