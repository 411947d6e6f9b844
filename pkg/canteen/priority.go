// Package canteen models a self-service canteen on top of the pkg/sim
// kernel: employees, customers, serving and production stations, a checkout
// and the admission-gated visit flow between them.
package canteen

// Priority orders competing claims on employees. Lower values are served
// first.
type Priority int

const (
	// Extraordinary is reserved for pulling back an employee already
	// assigned to the requesting job.
	Extraordinary Priority = 1
	Urgent        Priority = 5
	Medium        Priority = 7
	Normal        Priority = 10
)
