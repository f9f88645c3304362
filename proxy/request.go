package proxy

import(
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Request asks the proxy to fetch a URL. On the wire it is the protobuf
// message
//
//   message Request {
//     string url = 1;
//     int32 retry = 2;
//     int32 timeout_s = 3;
//     bool retry_on_timeout = 4;
//     string key = 5;
//   }
type Request struct {
	URL            string
	Retry          int // extra attempts after the first
	TimeoutS       int // per attempt
	RetryOnTimeout bool
	Key            string
}

const(
	fieldURL protowire.Number = iota + 1
	fieldRetry
	fieldTimeoutS
	fieldRetryOnTimeout
	fieldKey
)

// {{{ r.Marshal

// Marshal encodes r; zero fields are left out, as proto3 does.
func (r Request)Marshal() []byte {
	var b []byte
	if r.URL != "" {
		b = protowire.AppendTag(b, fieldURL, protowire.BytesType)
		b = protowire.AppendString(b, r.URL)
	}
	if r.Retry != 0 {
		b = protowire.AppendTag(b, fieldRetry, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(r.Retry)))
	}
	if r.TimeoutS != 0 {
		b = protowire.AppendTag(b, fieldTimeoutS, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(r.TimeoutS)))
	}
	if r.RetryOnTimeout {
		b = protowire.AppendTag(b, fieldRetryOnTimeout, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	if r.Key != "" {
		b = protowire.AppendTag(b, fieldKey, protowire.BytesType)
		b = protowire.AppendString(b, r.Key)
	}
	return b
}

// }}}
// {{{ UnmarshalRequest

// UnmarshalRequest decodes a Request, skipping fields it does not know.
func UnmarshalRequest(b []byte) (Request, error) {
	r := Request{}
	for len(b) > 0 {
		num,typ,n := protowire.ConsumeTag(b)
		if n < 0 {
			return r, fmt.Errorf("UnmarshalRequest/tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case (num == fieldURL || num == fieldKey) && typ == protowire.BytesType:
			s,n := protowire.ConsumeString(b)
			if n < 0 {
				return r, fmt.Errorf("UnmarshalRequest/field %d: %w", num, protowire.ParseError(n))
			}
			if num == fieldURL { r.URL = s } else { r.Key = s }
			b = b[n:]

		case (num == fieldRetry || num == fieldTimeoutS || num == fieldRetryOnTimeout) && typ == protowire.VarintType:
			v,n := protowire.ConsumeVarint(b)
			if n < 0 {
				return r, fmt.Errorf("UnmarshalRequest/field %d: %w", num, protowire.ParseError(n))
			}
			switch num {
			case fieldRetry:          r.Retry = int(int32(v))
			case fieldTimeoutS:       r.TimeoutS = int(int32(v))
			case fieldRetryOnTimeout: r.RetryOnTimeout = protowire.DecodeBool(v)
			}
			b = b[n:]

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return r, fmt.Errorf("UnmarshalRequest/skip %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return r, nil
}

// }}}

// {{{ -------------------------={ E N D }=----------------------------------

// Local variables:
// folded-file: t
// end:

// }}}
