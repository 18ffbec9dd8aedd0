package glgpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrimLog(t *testing.T) {
	assert.Equal(t, "ERROR: 0:3: 'x' : undeclared identifier",
		trimLog("ERROR: 0:3: 'x' : undeclared identifier\n\x00\x00"))
	assert.Equal(t, "", trimLog("\x00"))
}

func TestQuadCoversClipSpace(t *testing.T) {
	assert.Len(t, quadVertices, 12)
	for _, v := range quadVertices {
		assert.Contains(t, []float32{-1, 1}, v)
	}
}
