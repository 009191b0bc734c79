package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSizeClassTableBounded(t *testing.T) {
	require.LessOrEqual(t, NumClasses(), 128)
	for i := 1; i < NumClasses(); i++ {
		require.Greater(t, classSizes[i], classSizes[i-1], "class sizes must be strictly increasing")
	}
}

func TestSizeToClassRoundTrip(t *testing.T) {
	sizes := []uint32{1, 7, 8, 9, 15, 16, 100, 1000, 4096, 65536, largeThreshold}
	for _, n := range sizes {
		class := SizeToClass(n)
		require.NotEqual(t, LargeClass, class, "n=%d should fit in a class", n)
		rounded := ClassToSize(class)
		require.GreaterOrEqual(t, rounded, n)
		if class > 0 {
			require.Less(t, ClassToSize(class-1), n)
		}
	}
}

func TestSizeToClassAboveThresholdIsLarge(t *testing.T) {
	require.Equal(t, LargeClass, SizeToClass(largeThreshold+1))
	require.Equal(t, LargeClass, SizeToClass(1<<20))
}

func TestSizeToClassZeroRoundsToSmallestClass(t *testing.T) {
	require.Equal(t, 0, SizeToClass(0))
}
