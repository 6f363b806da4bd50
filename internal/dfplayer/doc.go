// Package dfplayer drives a DFPlayer Mini MP3 module over a serial line.
//
// The module speaks a fixed 10-byte frame protocol at 9600 baud:
//
//	0x7E 0xFF 0x06 CMD ACK PARAM_H PARAM_L CHK_H CHK_L 0xEF
//
// Player implements sequencer.PlaybackDevice. Commands are written without
// waiting for acknowledgement; a background reader decodes the module's
// reports (online, error, ack, track finished, medium inserted/removed) and
// hands request replies to the waiting call.
//
// # Usage
//
//	port, err := dfplayer.OpenSerial(dfplayer.SerialConfig{Port: "/dev/ttyS1"})
//	if err != nil {
//	    return err
//	}
//	player := dfplayer.New(port, dfplayer.Config{})
//	defer player.Close()
//
//	if err := player.Begin(ctx); err != nil {
//	    return err // no medium, wiring fault, wrong baud rate
//	}
//	_ = player.PlayFolder(1, 17)
//
// # Thread Safety
//
// All Player methods are safe for concurrent use. Event callbacks run on the
// reader goroutine and must not block.
package dfplayer
