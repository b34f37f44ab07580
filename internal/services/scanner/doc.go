/*
Package scanner runs the camera scan loop that finds payment QR codes.

One session scans at a time. Each session owns a cancellable context that
its decode loop and retry timer capture when they are scheduled, so a stop
followed by an immediate restart cannot let the old loop touch the new
session's state.

Lifecycle:

	svc := scanner.NewService(devices, reader, interpreter, log, recorder)
	unsubscribe := svc.Subscribe(func(st scanner.State) { render(st) })
	svc.OnDetected(func(raw string, res *qr.Result) { pay(res) })

	err := svc.StartScanning(ctx, sink)
	...
	err = svc.ResetAndRestart(ctx, sink) // scan again without a new prompt
	...
	svc.Dispose()

A frame with no code (ErrNotFound) is retried after the retry delay. Any
other reader error stops the loop and releases the device; StartScanning
then returns ErrResetRequired until Reset is called.
*/
package scanner
