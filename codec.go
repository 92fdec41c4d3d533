package transcribe

import (
	"encoding/binary"
	"fmt"
)

// Sparse on-disk encoding for TrialState: one mask byte whose low four
// bits mark which fields are present (bit set iff the value is non-zero),
// followed by the present fields as unsigned varints in fixed order
// {WeeklyLimit, MaxDuration, Remaining, CooldownUntil}. Absent fields are
// zero on decode. Field order and zero-omission are part of the stored
// record's contract, so the codec is explicit rather than reflective.

const (
	flagWeeklyLimit = 1 << iota
	flagMaxDuration
	flagRemaining
	flagCooldownUntil

	flagsKnown = flagWeeklyLimit | flagMaxDuration | flagRemaining | flagCooldownUntil
)

func encodeTrialState(s TrialState) []byte {
	var mask byte
	if s.WeeklyLimit != 0 {
		mask |= flagWeeklyLimit
	}
	if s.MaxDuration != 0 {
		mask |= flagMaxDuration
	}
	if s.Remaining != 0 {
		mask |= flagRemaining
	}
	if s.CooldownUntil != 0 {
		mask |= flagCooldownUntil
	}

	buf := []byte{mask}
	for _, f := range []struct {
		flag byte
		v    int64
	}{
		{flagWeeklyLimit, s.WeeklyLimit},
		{flagMaxDuration, s.MaxDuration},
		{flagRemaining, s.Remaining},
		{flagCooldownUntil, s.CooldownUntil},
	} {
		if mask&f.flag != 0 {
			buf = binary.AppendUvarint(buf, uint64(f.v))
		}
	}
	return buf
}

func decodeTrialState(data []byte) (TrialState, error) {
	var s TrialState
	if len(data) == 0 {
		return s, fmt.Errorf("transcribe: empty trial record")
	}

	mask := data[0]
	if mask&^byte(flagsKnown) != 0 {
		return s, fmt.Errorf("transcribe: unknown trial record flags %#x", mask)
	}
	rest := data[1:]

	for _, f := range []struct {
		flag byte
		dst  *int64
	}{
		{flagWeeklyLimit, &s.WeeklyLimit},
		{flagMaxDuration, &s.MaxDuration},
		{flagRemaining, &s.Remaining},
		{flagCooldownUntil, &s.CooldownUntil},
	} {
		if mask&f.flag == 0 {
			continue
		}
		v, n := binary.Uvarint(rest)
		if n <= 0 {
			return TrialState{}, fmt.Errorf("transcribe: truncated trial record")
		}
		*f.dst = int64(v)
		rest = rest[n:]
	}

	if len(rest) != 0 {
		return TrialState{}, fmt.Errorf("transcribe: %d trailing bytes in trial record", len(rest))
	}
	return s, nil
}
