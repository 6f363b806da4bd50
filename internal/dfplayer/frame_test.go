package dfplayer

import (
	"bytes"
	"errors"
	"testing"
)

func TestFrameEncode(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  []byte
	}{
		{
			name:  "reset",
			frame: Frame{Command: CmdReset},
			want:  []byte{0x7E, 0xFF, 0x06, 0x0C, 0x00, 0x00, 0x00, 0xFE, 0xEF, 0xEF},
		},
		{
			name:  "play folder 1 track 1",
			frame: Frame{Command: CmdPlayFolder, Param: 0x0101},
			want:  []byte{0x7E, 0xFF, 0x06, 0x0F, 0x00, 0x01, 0x01, 0xFE, 0xEA, 0xEF},
		},
		{
			name:  "volume 30",
			frame: Frame{Command: CmdVolume, Param: 30},
			want:  []byte{0x7E, 0xFF, 0x06, 0x06, 0x00, 0x00, 0x1E, 0xFE, 0xD7, 0xEF},
		},
		{
			name:  "play folder 3 track 17 with feedback",
			frame: Frame{Command: CmdPlayFolder, Feedback: true, Param: 0x0311},
			want:  []byte{0x7E, 0xFF, 0x06, 0x0F, 0x01, 0x03, 0x11, 0xFE, 0xD7, 0xEF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.frame.Encode()
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Encode() = % X, want % X", got, tt.want)
			}

			decoded, err := DecodeFrame(got)
			if err != nil {
				t.Fatalf("DecodeFrame() error = %v", err)
			}
			if decoded != tt.frame {
				t.Errorf("DecodeFrame() = %v, want %v", decoded, tt.frame)
			}
		})
	}
}

func TestDecodeFrame_Reports(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		want       Frame
		wantReport bool
	}{
		{
			name: "online with SD card",
			data: []byte{0x7E, 0xFF, 0x06, 0x3F, 0x00, 0x00, 0x02, 0xFE, 0xBA, 0xEF},
			want: Frame{Command: RespOnline, Param: 0x02},
		},
		{
			name:       "finished SD track 5",
			data:       []byte{0x7E, 0xFF, 0x06, 0x3D, 0x00, 0x00, 0x05, 0xFE, 0xB9, 0xEF},
			want:       Frame{Command: RespFinishedSD, Param: 0x05},
			wantReport: true,
		},
		{
			name: "error no medium",
			data: []byte{0x7E, 0xFF, 0x06, 0x40, 0x00, 0x00, 0x01, 0xFE, 0xBA, 0xEF},
			want: Frame{Command: RespError, Param: 0x01},
		},
		{
			name: "status playing from SD",
			data: []byte{0x7E, 0xFF, 0x06, 0x42, 0x00, 0x02, 0x00, 0xFE, 0xB7, 0xEF},
			want: Frame{Command: CmdQueryStatus, Param: 0x0200},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeFrame(tt.data)
			if err != nil {
				t.Fatalf("DecodeFrame() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeFrame() = %v, want %v", got, tt.want)
			}
			if got.IsReport() != tt.wantReport {
				t.Errorf("IsReport() = %t, want %t", got.IsReport(), tt.wantReport)
			}
		})
	}
}

func TestDecodeFrame_Invalid(t *testing.T) {
	valid := Frame{Command: CmdReset}.Encode()

	corrupt := func(i int, b byte) []byte {
		data := bytes.Clone(valid)
		data[i] = b
		return data
	}

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "short", data: valid[:9]},
		{name: "long", data: append(bytes.Clone(valid), 0x00)},
		{name: "bad start", data: corrupt(0, 0x7F)},
		{name: "bad end", data: corrupt(9, 0xEE)},
		{name: "bad version", data: corrupt(1, 0xFE)},
		{name: "bad length", data: corrupt(2, 0x08)},
		{name: "bad checksum", data: corrupt(8, 0x00)},
		{name: "payload changed", data: corrupt(6, 0x01)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFrame(tt.data)
			if !errors.Is(err, ErrInvalidFrame) {
				t.Errorf("DecodeFrame() error = %v, want ErrInvalidFrame", err)
			}
		})
	}
}

func TestPlayFolderFrame_Bounds(t *testing.T) {
	tests := []struct {
		name    string
		folder  int
		track   int
		wantErr bool
	}{
		{name: "lowest", folder: 1, track: 1},
		{name: "highest", folder: 99, track: 255},
		{name: "folder zero", folder: 0, track: 1, wantErr: true},
		{name: "folder too high", folder: 100, track: 1, wantErr: true},
		{name: "track zero", folder: 1, track: 0, wantErr: true},
		{name: "track too high", folder: 1, track: 256, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := playFolderFrame(tt.folder, tt.track, false)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTrack) {
					t.Errorf("playFolderFrame() error = %v, want ErrInvalidTrack", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("playFolderFrame() error = %v", err)
			}
			if got := int(f.Param >> 8); got != tt.folder {
				t.Errorf("folder byte = %d, want %d", got, tt.folder)
			}
			if got := int(f.Param & 0xFF); got != tt.track {
				t.Errorf("track byte = %d, want %d", got, tt.track)
			}
		})
	}
}
