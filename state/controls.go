package state

type Tone string

const (
	ToneIndigo Tone = "indigo"
	ToneRed    Tone = "red"
	ToneGreen  Tone = "green"
	ToneBlue   Tone = "blue"
	TonePurple Tone = "purple"
	ToneGray   Tone = "gray"
	ToneMuted  Tone = "muted" // disabled
)

type Icon string

const (
	IconMic      Icon = "mic"
	IconSquare   Icon = "square"
	IconPlay     Icon = "play"
	IconCopy     Icon = "copy"
	IconDownload Icon = "download"
	IconReset    Icon = "reset"
)

type Button struct {
	Label   string
	Icon    Icon
	Tone    Tone
	Enabled bool
}

type Controls struct {
	Capture  Button
	Playback Button
	Copy     Button
	Download Button
	Reset    Button
}

// ControlsFor derives every control's rendering from s. Capturing and
// Speaking are independent; all four combinations render.
func ControlsFor(s State) Controls {
	var c Controls

	if s.Capturing {
		c.Capture = Button{Label: "Stop Recording", Icon: IconSquare, Tone: ToneRed, Enabled: true}
	} else {
		c.Capture = Button{Label: "Start Recording", Icon: IconMic, Tone: ToneIndigo, Enabled: true}
	}

	hasText := !s.Empty()

	c.Playback = Button{Label: "Play Text", Icon: IconPlay, Tone: ToneGreen, Enabled: hasText}
	if s.Speaking {
		c.Playback.Label = "Stop Speaking"
		c.Playback.Icon = IconSquare
		c.Playback.Tone = ToneRed
	}
	if !hasText {
		c.Playback.Tone = ToneMuted
	}

	c.Copy = Button{Label: "Copy Text", Icon: IconCopy, Tone: ToneBlue, Enabled: hasText}
	c.Download = Button{Label: "Download Text", Icon: IconDownload, Tone: TonePurple, Enabled: hasText}
	if !hasText {
		c.Copy.Tone = ToneMuted
		c.Download.Tone = ToneMuted
	}

	c.Reset = Button{Label: "Reset", Icon: IconReset, Tone: ToneGray, Enabled: true}
	return c
}
