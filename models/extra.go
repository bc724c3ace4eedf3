package models

type AudioFormat string

const (
	AFOPUS AudioFormat = "opus"
	AFMP3  AudioFormat = "mp3"
)
