package diagnostics

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() []Diagnostic {
	return []Diagnostic{
		{Severity: Error, MessageKey: KeyAlteredGroupConversion, Args: []string{"acme.I2"}, Method: "acme.C#m()"},
		{Severity: Error, MessageKey: KeyAlteredCascading, Args: []string{"acme.Base"}, Method: "acme.Sub#validate()"},
		{Severity: Error, MessageKey: KeyAlteredGroupConversion, Args: []string{"acme.I1"}, Method: "acme.C#m()"},
	}
}

func TestSeverityJSON(t *testing.T) {
	for _, s := range []Severity{Info, Warning, Error, Fatal} {
		data, err := json.Marshal(s)
		require.NoError(t, err)

		var decoded Severity
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, s, decoded)
	}

	var unknown Severity
	require.NoError(t, json.Unmarshal([]byte(`"bogus"`), &unknown))
	assert.Equal(t, Error, unknown)
	assert.Equal(t, "unknown", Severity(42).String())
}

func TestDiagnosticTuple(t *testing.T) {
	d := sample()[1]
	data, err := json.Marshal(d)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "error", decoded["severity"])
	assert.Contains(t, decoded, "location")
	assert.Nil(t, decoded["location"])
	assert.Equal(t, KeyAlteredCascading, decoded["message_key"])
	assert.Equal(t, "acme.Base", decoded["type_name"])
	assert.Equal(t, "acme.Sub#validate()", decoded["method"])
	assert.Equal(t, "overriding method must not alter the cascading of acme.Base", decoded["message"])
}

func TestMessageFallback(t *testing.T) {
	assert.Equal(t, "CUSTOM_KEY: acme.T", Diagnostic{MessageKey: "CUSTOM_KEY", Args: []string{"acme.T"}}.Message())
	assert.Equal(t, "CUSTOM_KEY", Diagnostic{MessageKey: "CUSTOM_KEY"}.Message())
}

func TestSort(t *testing.T) {
	diags := sample()
	Sort(diags)

	assert.Equal(t, "acme.C#m()", diags[0].Method)
	assert.Equal(t, "acme.I1", diags[0].TypeName())
	assert.Equal(t, "acme.I2", diags[1].TypeName())
	assert.Equal(t, "acme.Sub#validate()", diags[2].Method)
}

func TestFormatJSON(t *testing.T) {
	out, err := FormatJSON(sample())
	require.NoError(t, err)

	var decoded JSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "error", decoded.Status)
	assert.Equal(t, Summary{ErrorCount: 3, TotalCount: 3}, decoded.Summary)
	assert.Len(t, decoded.Diagnostics, 3)

	empty, err := FormatJSON(nil)
	require.NoError(t, err)
	assert.Contains(t, empty, `"status": "success"`)
	assert.Contains(t, empty, `"diagnostics": []`)
}

func TestSummaryStatus(t *testing.T) {
	assert.Equal(t, "success", Summarize(nil).Status())
	assert.Equal(t, "warning", Summarize([]Diagnostic{{Severity: Warning}, {Severity: Info}}).Status())
	assert.Equal(t, "error", Summarize([]Diagnostic{{Severity: Warning}, {Severity: Fatal}}).Status())
}

func TestWriteTerminal(t *testing.T) {
	var buf bytes.Buffer
	WriteTerminal(&buf, sample()[1:2], TerminalOptions{NoColor: true})

	out := buf.String()
	assert.Contains(t, out, "error: overriding method must not alter the cascading of acme.Base")
	assert.Contains(t, out, "--> acme.Sub#validate() [OVERRIDING_METHOD_MUST_NOT_ALTER_CASCADING]")
	assert.Contains(t, out, "Check failed with 1 error(s)")

	buf.Reset()
	WriteTerminal(&buf, nil, TerminalOptions{NoColor: true})
	assert.Contains(t, buf.String(), "No override violations found")
}
