package tx

import "context"

// Transactor ejecuta fn como una unidad de trabajo.
//
// Los repositorios que reciben el ctx de fn participan en la misma transacción
// cuando el backend la soporta. Atomic() indica si un error dentro de fn
// deshace todo lo escrito; si es false, lo ya escrito queda escrito y el
// servicio que orquesta debe reportarlo.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	Atomic() bool
}

// Direct corre fn sin transacción (backends sin soporte).
type Direct struct{}

func (Direct) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (Direct) Atomic() bool { return false }
