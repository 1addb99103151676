package tenma

import (
	"errors"
	"fmt"
	"testing"

	c "github.com/smartystreets/goconvey/convey"
)

func TestCheckChannel(t *testing.T) {
	testCases := []struct {
		model   string
		channel int
		valid   bool
	}{
		{"72-2545", 1, true},
		{"72-2545", 2, false},
		{"72-2545", 0, false},
		{"72-13330", 3, true},
		{"72-13330", 4, false},
		{"72-13330", -1, false},
	}
	c.Convey("Given the need to validate channels", t, func() {
		for _, testCase := range testCases {
			p, _ := Lookup(testCase.model)
			conveyance := fmt.Sprintf("When CH%d is used on a %s", testCase.channel, testCase.model)
			c.Convey(conveyance, func() {
				err := CheckChannel(p, testCase.channel)
				if testCase.valid {
					c.So(err, c.ShouldBeNil)
					return
				}
				c.So(errors.Is(err, ErrValidation), c.ShouldBeTrue)
				c.So(err.Error(), c.ShouldEqual, fmt.Sprintf("Channel CH%d not in range (%d channels supported)", testCase.channel, p.Channels))
			})
		}
	})
}

func TestCheckCeilings(t *testing.T) {
	p, _ := Lookup("72-2550")

	c.Convey("Given a 72-2550 limited to 60V and 3A", t, func() {
		c.Convey("When the requested voltage is at the maximum", func() {
			c.So(CheckVoltage(p, 1, 60000), c.ShouldBeNil)
		})
		c.Convey("When the requested voltage is zero", func() {
			c.So(CheckVoltage(p, 1, 0), c.ShouldBeNil)
		})
		c.Convey("When the requested voltage is above the maximum", func() {
			err := CheckVoltage(p, 1, 70000)
			c.So(err.Error(), c.ShouldEqual, "Trying to set CH1 voltage to 70000mV, the maximum is 60000mV")

			var verr *ValidationError
			c.So(errors.As(err, &verr), c.ShouldBeTrue)
			c.So(verr.Limit, c.ShouldEqual, 60000)
			c.So(verr.Unit, c.ShouldEqual, "mV")
		})
		c.Convey("When the requested current is above the maximum", func() {
			err := CheckCurrent(p, 1, 3500)
			c.So(err.Error(), c.ShouldEqual, "Trying to set CH1 current to 3500mA, the maximum is 3000mA")
		})
		c.Convey("When the requested current is negative", func() {
			err := CheckCurrent(p, 1, -10)
			c.So(err.Error(), c.ShouldEqual, "Trying to set CH1 current to -10mA, the minimum is 0mA")
		})
	})
}

func TestCheckSlot(t *testing.T) {
	testCases := []struct {
		model string
		slot  int
		valid bool
	}{
		{"72-2540", 1, true},
		{"72-2540", 5, true},
		{"72-2540", 6, false},
		{"72-2540", 0, false},
		{"72-13320", 1, false},
	}
	c.Convey("Given the need to validate memory slots", t, func() {
		for _, testCase := range testCases {
			p, _ := Lookup(testCase.model)
			conveyance := fmt.Sprintf("When M%d is used on a %s", testCase.slot, testCase.model)
			c.Convey(conveyance, func() {
				err := CheckSlot(p, testCase.slot)
				if testCase.valid {
					c.So(err, c.ShouldBeNil)
					return
				}
				c.So(err.Error(), c.ShouldEqual, fmt.Sprintf("Trying to use M%d with only %d slots", testCase.slot, p.ConfigSlots))
			})
		}
	})
}

func TestChannelRules(t *testing.T) {
	p, _ := Lookup("72-13330")

	c.Convey("Given the fixed third channel of a 72-13330", t, func() {
		for _, mv := range []int{2500, 3300, 5000} {
			c.Convey(fmt.Sprintf("When CH3 is set to %dmV", mv), func() {
				c.So(CheckChannelVoltage(p, 3, mv), c.ShouldBeNil)
			})
		}
		c.Convey("When CH3 is set to another voltage", func() {
			err := CheckChannelVoltage(p, 3, 3000)
			c.So(err.Error(), c.ShouldEqual, "Channel CH3 can only be set to 2500mV, 3300mV or 5000mV")
		})
		c.Convey("When CH1 is set to any voltage", func() {
			c.So(CheckChannelVoltage(p, 1, 3000), c.ShouldBeNil)
		})
		c.Convey("When the current of CH3 is read", func() {
			err := CheckCurrentReadback(p, 3)
			c.So(err.Error(), c.ShouldEqual, "Channel CH3 does not support reading current")
		})
		c.Convey("When the current of CH2 is read", func() {
			c.So(CheckCurrentReadback(p, 2), c.ShouldBeNil)
		})
	})
}

func TestCheckStep(t *testing.T) {
	c.Convey("Given an auto-step ramp", t, func() {
		c.Convey("When the ramp is well formed", func() {
			c.So(CheckStep(1, "voltage", 1000, 5000, 500, 1, "mV"), c.ShouldBeNil)
		})
		c.Convey("When the ramp goes down", func() {
			c.So(CheckStep(1, "voltage", 5000, 1000, 500, 1, "mV"), c.ShouldBeNil)
		})
		c.Convey("When the step is higher than the stop value", func() {
			err := CheckStep(1, "voltage", 1000, 5000, 6000, 1, "mV")
			c.So(errors.Is(err, ErrValidation), c.ShouldBeTrue)
		})
		c.Convey("When the step is zero", func() {
			c.So(CheckStep(1, "current", 0, 1000, 0, 1, "mA"), c.ShouldNotBeNil)
		})
		c.Convey("When the time is zero", func() {
			c.So(CheckStep(2, "current", 0, 1000, 100, 0, "mA"), c.ShouldNotBeNil)
		})
	})
}
