package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/neurotone/analysis"
	"github.com/cwbudde/neurotone/tone"
)

// voiceSpec binds one band of one channel to a note.
type voiceSpec struct {
	band    analysis.Band
	channel tone.Channel
	note    uint8
}

func (v voiceSpec) String() string {
	return fmt.Sprintf("%s:%s:%d", v.band, v.channel, v.note)
}

// voiceList is a repeatable -voice flag.
type voiceList []voiceSpec

func (l *voiceList) String() string {
	parts := make([]string, len(*l))
	for i, v := range *l {
		parts[i] = v.String()
	}
	return strings.Join(parts, ",")
}

// Set parses band:channel[:note]. Without a note the next pentatonic note
// is used.
func (l *voiceList) Set(s string) error {
	v, err := parseVoice(s, tone.Notes[len(*l)%len(tone.Notes)])
	if err != nil {
		return err
	}
	*l = append(*l, v)
	return nil
}

func parseVoice(s string, defaultNote uint8) (voiceSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return voiceSpec{}, fmt.Errorf("voice %q: want band:channel[:note]", s)
	}

	band, err := analysis.ParseBand(parts[0])
	if err != nil {
		return voiceSpec{}, fmt.Errorf("voice %q: %w", s, err)
	}
	if parts[1] == "" {
		return voiceSpec{}, fmt.Errorf("voice %q: empty channel", s)
	}

	note := defaultNote
	if len(parts) == 3 {
		n, err := strconv.ParseUint(parts[2], 10, 8)
		if err != nil || n > tone.MaxControl {
			return voiceSpec{}, fmt.Errorf("voice %q: invalid note %q", s, parts[2])
		}
		note = uint8(n)
	}

	return voiceSpec{band: band, channel: tone.ParseChannel(parts[1]), note: note}, nil
}

// defaultVoices mirrors a small frontal/central/parietal alpha and beta set.
func defaultVoices() voiceList {
	return voiceList{
		{band: analysis.Alpha, channel: tone.ChannelName("Pz"), note: tone.Notes[0]},
		{band: analysis.Alpha, channel: tone.ChannelName("Oz"), note: tone.Notes[2]},
		{band: analysis.Beta, channel: tone.ChannelName("C4"), note: tone.Notes[4]},
		{band: analysis.Theta, channel: tone.ChannelName("F8"), note: tone.Notes[6]},
	}
}
