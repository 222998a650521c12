package utils

// CycleEnum steps an int-backed enum with values 0..last by step, wrapping
// around at both ends.
func CycleEnum[T ~int](current T, step int, last T) T {
	n := int(last) + 1
	return T(((int(current)+step)%n + n) % n)
}
