package utils

import (
	"context"
	"time"
)

// Retry ejecuta fn hasta attempts veces. La espera entre intentos empieza en
// delay y se duplica en cada fallo; tras el último intento no se espera.
// Devuelve el último error de fn, o el del contexto si se cancela esperando.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
			delay *= 2
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	return err
}
