// -- internal/browser/session_test.go --
package browser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeScript(t *testing.T) {
	script := nodeScript(`//*[@id='email']`, "return node.value;")
	assert.Contains(t, script, `document.evaluate("//*[@id='email']"`)
	assert.Contains(t, script, "no element matches locator")
	assert.Contains(t, script, "return node.value;")
}

func TestJSStringEscapes(t *testing.T) {
	assert.Equal(t, `"plain"`, jsString("plain"))
	assert.Equal(t, `"with \"quotes\""`, jsString(`with "quotes"`))
	assert.Equal(t, `"line\nbreak"`, jsString("line\nbreak"))
}

func TestIsStaleContext(t *testing.T) {
	assert.True(t, isStaleContext(errors.New("Cannot find context with specified id")))
	assert.True(t, isStaleContext(errors.New("rpc error: Execution context was destroyed")))
	assert.False(t, isStaleContext(errors.New("net::ERR_NAME_NOT_RESOLVED")))
}

func TestKeySequencesCoverPipelineKeys(t *testing.T) {
	for _, key := range []string{"Enter", "Escape", "Tab", "ArrowDown"} {
		seq, ok := keySequences[key]
		assert.True(t, ok, "missing %s", key)
		assert.NotEmpty(t, seq)
	}
}
