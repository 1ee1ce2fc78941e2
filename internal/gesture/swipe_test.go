package gesture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const autoOff = 4000 * time.Millisecond

func ms(n int) time.Time {
	return t0.Add(time.Duration(n) * time.Millisecond)
}

func TestSwipeDirectionMapping(t *testing.T) {
	tests := []struct {
		name string
		axis Axis
		from int
		to   int
		want Control
	}{
		{"bottom to top", AxisVertical, 1500, 1000, ControlUp},
		{"top to bottom", AxisVertical, 1000, 1500, ControlDown},
		{"right to left", AxisHorizontal, 1000, 400, ControlNext},
		{"left to right", AxisHorizontal, 400, 1000, ControlPrevious},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewSwipeAxis(tt.axis, DefaultSwipeTuning())

			out, c := a.Evaluate(tt.from, ms(0), autoOff)
			assert.Equal(t, SwipeNothing, out)
			assert.Equal(t, ControlNone, c)

			out, c = a.Evaluate(tt.to, ms(100), autoOff)
			assert.Equal(t, SwipeFired, out)
			assert.Equal(t, tt.want, c)

			st := a.State()
			assert.True(t, st.Actuating)
			assert.Equal(t, tt.want, st.Control)
		})
	}
}

func TestSwipeFeatherIsStrict(t *testing.T) {
	a := NewSwipeAxis(AxisVertical, DefaultSwipeTuning())

	a.Evaluate(1000, ms(0), autoOff)
	out, _ := a.Evaluate(650, ms(50), autoOff)
	assert.Equal(t, SwipeNothing, out, "exactly the feather does not fire")

	out, c := a.Evaluate(649, ms(60), autoOff)
	assert.Equal(t, SwipeFired, out)
	assert.Equal(t, ControlUp, c)
}

func TestSwipeTrackUsesWiderFeather(t *testing.T) {
	a := NewSwipeAxis(AxisHorizontal, DefaultSwipeTuning())

	a.Evaluate(1000, ms(0), autoOff)
	out, _ := a.Evaluate(600, ms(50), autoOff)
	assert.Equal(t, SwipeNothing, out)
}

func TestSwipeTooSlowDoesNotFire(t *testing.T) {
	a := NewSwipeAxis(AxisVertical, DefaultSwipeTuning())

	a.Evaluate(1500, ms(0), autoOff)
	out, _ := a.Evaluate(500, ms(250), autoOff)
	assert.Equal(t, SwipeNothing, out)
	assert.False(t, a.State().Actuating)
}

func TestSwipeReferenceIsFirstSample(t *testing.T) {
	a := NewSwipeAxis(AxisVertical, DefaultSwipeTuning())

	a.Evaluate(1000, ms(0), autoOff)
	a.Evaluate(900, ms(50), autoOff)

	st := a.State()
	assert.Equal(t, 1000, st.RefCoord)
	assert.Equal(t, ms(0), st.RefTime)
}

func TestSwipeActuatingIgnoresSamples(t *testing.T) {
	a := NewSwipeAxis(AxisVertical, DefaultSwipeTuning())

	a.Evaluate(1500, ms(0), autoOff)
	a.Evaluate(1000, ms(100), autoOff)

	out, c := a.Evaluate(2000, ms(150), autoOff)
	assert.Equal(t, SwipeNothing, out)
	assert.Equal(t, ControlNone, c)
	assert.Equal(t, ControlUp, a.State().Control)
}

func TestSwipeRestingContactAutoOff(t *testing.T) {
	a := NewSwipeAxis(AxisVertical, DefaultSwipeTuning())

	a.Evaluate(1000, ms(0), autoOff)
	out, _ := a.Evaluate(1001, ms(4000), autoOff)
	assert.Equal(t, SwipeNothing, out, "auto-off needs strictly more than the delay")

	out, _ = a.Evaluate(1001, ms(4001), autoOff)
	assert.Equal(t, SwipeAutoOff, out)
}

func TestSwipeReset(t *testing.T) {
	a := NewSwipeAxis(AxisVertical, DefaultSwipeTuning())

	a.Evaluate(1500, ms(0), autoOff)
	a.Evaluate(1000, ms(100), autoOff)
	a.Reset()
	assert.Equal(t, SwipeAxisState{}, a.State())

	out, _ := a.Evaluate(1000, ms(200), autoOff)
	assert.Equal(t, SwipeNothing, out)
	assert.Equal(t, 1000, a.State().RefCoord)
}
