package synth

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplats(t *testing.T) {
	tbl := Splats(rand.New(rand.NewSource(3)), 128, Options{SHBands: 3, Clusters: 2})

	assert.Equal(t, 128, tbl.NumRows())
	assert.Equal(t, 14+45, tbl.NumColumns())
	assert.True(t, tbl.HasColumn("f_rest_44"))

	// same seed, same table
	again := Splats(rand.New(rand.NewSource(3)), 128, Options{SHBands: 3, Clusters: 2})
	assert.Equal(t, tbl.Interleave(nil), again.Interleave(nil))
}

func TestSplatsClampsBands(t *testing.T) {
	tbl := Splats(rand.New(rand.NewSource(1)), 4, Options{SHBands: 9})
	assert.Equal(t, 14+45, tbl.NumColumns())

	tbl = Splats(rand.New(rand.NewSource(1)), 4, Options{SHBands: -1})
	assert.Equal(t, 14, tbl.NumColumns())
}

func TestUnitQuaternion(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 100; i++ {
		q := UnitQuaternion(rng)
		assert.InDelta(t, 1, math.Sqrt(q[0]*q[0]+q[1]*q[1]+q[2]*q[2]+q[3]*q[3]), 1e-9)
	}
}
