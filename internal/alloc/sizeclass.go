package alloc

import "sort"

// LargeClass is the sentinel classID returned by SizeToClass for requests
// above largeThreshold: "take the large path" rather than a slab.
const LargeClass = -1

// classSizes is the monotone size-class table: classSizes[i] is the
// rounded size of class i. Built once at init time by growing each class
// ~12.5% over the last and rounding to a minAlignment (16-byte) multiple,
// so every block in a slab stays 16-byte aligned, which keeps internal
// fragmentation bounded while staying well under the 128-class budget
// (spec.md §3). The last class is exactly largeThreshold.
var classSizes = buildSizeClasses()

func buildSizeClasses() []uint32 {
	var classes []uint32
	size := uint32(minAlignment)
	for size <= largeThreshold {
		classes = append(classes, size)
		next := size + size/8
		next = (next + minAlignment - 1) &^ (minAlignment - 1)
		if next <= size {
			next = size + minAlignment
		}
		size = next
	}
	if classes[len(classes)-1] < largeThreshold {
		classes = append(classes, largeThreshold)
	}
	if len(classes) > 128 {
		panic("alloc: size-class table exceeds 128 classes")
	}
	return classes
}

// NumClasses returns the number of size classes in the table.
func NumClasses() int {
	return len(classSizes)
}

// ClassToSize returns the rounded byte size of class i.
func ClassToSize(class int) uint32 {
	return classSizes[class]
}

// SizeToClass maps a requested byte size to the smallest class whose
// rounded size is >= n, or LargeClass if n exceeds the largest class
// (256 KiB).
func SizeToClass(n uint32) int {
	if n > largeThreshold {
		return LargeClass
	}
	if n == 0 {
		n = 1
	}
	idx := sort.Search(len(classSizes), func(i int) bool {
		return classSizes[i] >= n
	})
	if idx == len(classSizes) {
		return LargeClass
	}
	return idx
}
