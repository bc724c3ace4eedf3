package models

const (
	UnknownStreet = "unknown street"
)
