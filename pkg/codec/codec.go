package codec

import (
	"context"
	"fmt"
	"time"

	"github.com/mpapenbr/lorawan-service-manager/pkg/jsrt"
)

type Codec int

const (
	None Codec = iota
	CayenneLPP
	JS
)

func ParseCodec(s string) (Codec, error) {
	switch s {
	case "", "NONE":
		return None, nil
	case "CAYENNE_LPP":
		return CayenneLPP, nil
	case "JS":
		return JS, nil
	}
	return None, fmt.Errorf("unexpected codec: %s", s)
}

func (c Codec) String() string {
	switch c {
	case None:
		return "NONE"
	case CayenneLPP:
		return "CAYENNE_LPP"
	case JS:
		return "JS"
	}
	return fmt.Sprintf("Codec(%d)", int(c))
}

func (c Codec) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Codec) UnmarshalText(text []byte) error {
	v, err := ParseCodec(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// BinaryToStruct decodes b. The None codec returns a nil object.
//
//nolint:whitespace // can't make both editor and linter happy
func BinaryToStruct(
	ctx context.Context,
	rt *jsrt.Runtime,
	codec Codec,
	recvTime time.Time,
	fPort uint8,
	variables map[string]string,
	script string,
	b []byte,
) (map[string]any, error) {
	switch codec {
	case None:
		return nil, nil
	case CayenneLPP:
		ret, err := DecodeLPP(b)
		if err != nil {
			return nil, fmt.Errorf("cayenne lpp decode: %w", err)
		}
		return ret, nil
	case JS:
		s, err := rt.Compile("decoder", script)
		if err != nil {
			return nil, fmt.Errorf("compile script: %w", err)
		}
		return decodeUplink(ctx, rt, s, recvTime, fPort, variables, b)
	}
	return nil, fmt.Errorf("unexpected codec: %s", codec)
}

// StructToBinary encodes obj. The None codec returns an empty payload.
//
//nolint:whitespace // can't make both editor and linter happy
func StructToBinary(
	ctx context.Context,
	rt *jsrt.Runtime,
	codec Codec,
	fPort uint8,
	variables map[string]string,
	script string,
	obj map[string]any,
) ([]byte, error) {
	switch codec {
	case None:
		return []byte{}, nil
	case CayenneLPP:
		ret, err := EncodeLPP(obj)
		if err != nil {
			return nil, fmt.Errorf("cayenne lpp encode: %w", err)
		}
		return ret, nil
	case JS:
		s, err := rt.Compile("encoder", script)
		if err != nil {
			return nil, fmt.Errorf("compile script: %w", err)
		}
		ret, err := encodeDownlink(ctx, rt, s, fPort, variables, obj)
		if err != nil {
			return nil, fmt.Errorf("javascript encoder: %w", err)
		}
		return ret, nil
	}
	return nil, fmt.Errorf("unexpected codec: %s", codec)
}
