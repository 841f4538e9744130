//go:build linux

package hotkey

import "testing"

func TestComboTracker(t *testing.T) {
	type step struct {
		code     uint16
		value    int32
		down, up bool
	}
	for _, tt := range []struct {
		name  string
		steps []step
	}{
		{"chord", []step{
			{keyLCtrl, keyPress, false, false},
			{keyLShift, keyPress, false, false},
			{keySpace, keyPress, true, false},
			{keySpace, 2, false, false}, // autorepeat
			{keySpace, keyRelease, false, true},
		}},
		{"space without modifiers", []step{
			{keySpace, keyPress, false, false},
			{keySpace, keyRelease, false, false},
		}},
		{"right-hand modifiers", []step{
			{keyRCtrl, keyPress, false, false},
			{keyRShift, keyPress, false, false},
			{keySpace, keyPress, true, false},
			{keyRShift, keyRelease, false, false},
			{keySpace, keyRelease, false, true},
		}},
		{"modifier released first", []step{
			{keyLCtrl, keyPress, false, false},
			{keyLShift, keyPress, false, false},
			{keyLShift, keyRelease, false, false},
			{keySpace, keyPress, false, false},
		}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			var c comboTracker
			for i, s := range tt.steps {
				down, up := c.feed(s.code, s.value)
				if down != s.down || up != s.up {
					t.Errorf("step %d: got down=%v up=%v, want down=%v up=%v", i, down, up, s.down, s.up)
				}
			}
		})
	}
}
