package detector

// Detect exposes the detection rule independently of the file descriptor.
var Detect = detect
