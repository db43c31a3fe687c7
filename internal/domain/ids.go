package domain

// RegistrationCode is the opaque, URL-safe identifier assigned to a registration at insert time.
// It is the only key for both the record and its credential image.
type RegistrationCode string

func (c RegistrationCode) String() string { return string(c) }
