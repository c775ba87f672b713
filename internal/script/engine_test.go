package script

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	floats map[string]float64
	set    map[string]string
}

func newFakeHost() *fakeHost {
	return &fakeHost{floats: map[string]float64{}, set: map[string]string{}}
}

func (h *fakeHost) GetString(name string) (string, bool) { return "", false }
func (h *fakeHost) GetInt(name string) (int64, bool) {
	f, ok := h.floats[name]
	return int64(f), ok
}
func (h *fakeHost) GetFloat(name string) (float64, bool) {
	f, ok := h.floats[name]
	return f, ok
}
func (h *fakeHost) GetBool(name string) (bool, bool) { return false, false }
func (h *fakeHost) Set(name string, value string) error {
	h.set[name] = value
	return nil
}

func TestEngine_CompileAndExecuteDerivedValue(t *testing.T) {
	e := NewEngine(0)
	prog, err := e.Compile(`doubled = C_Register.GetFloat("volts") * 2
C_Register.Set("doubled_out", doubled)`)
	require.NoError(t, err)

	host := newFakeHost()
	host.floats["volts"] = 21.5

	err = e.Execute(prog, host, NewTimeSource(time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "43", host.set["doubled_out"])
}

func TestEngine_CompileSyntaxError(t *testing.T) {
	e := NewEngine(0)
	_, err := e.Compile(`doubled = (1 + `)
	require.Error(t, err)
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
}

func TestEngine_RuntimeErrorOnMissingRegister(t *testing.T) {
	e := NewEngine(0)
	prog, err := e.Compile(`C_Register.Set("x", C_Register.GetFloat("missing"))`)
	require.NoError(t, err)

	err = e.Execute(prog, newFakeHost(), NewTimeSource(time.Now()))
	require.Error(t, err)
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
}

func TestEngine_StepBudgetEnforced(t *testing.T) {
	e := NewEngine(1)
	prog, err := e.Compile(`a = 1
b = 2`)
	require.NoError(t, err)

	err = e.Execute(prog, newFakeHost(), NewTimeSource(time.Now()))
	require.Error(t, err)
	var be *StepBudgetError
	require.ErrorAs(t, err, &be)
}

func TestTimeSource(t *testing.T) {
	ts := NewTimeSource(time.Now().Add(-2 * time.Second))
	assert.GreaterOrEqual(t, ts.Get(), int64(1))
	assert.GreaterOrEqual(t, ts.GetMs(), int64(1000))
}
