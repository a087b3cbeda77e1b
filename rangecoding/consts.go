package rangecoding

// Constants from RFC 6716 Section 4.1 and libopus celt/mfrngcod.h.
const (
	ecSymBits   = 8                              // bits output at a time
	ecCodeBits  = 32                             // total state register bits
	ecSymMax    = (1 << ecSymBits) - 1           // 255
	ecCodeTop   = 1 << (ecCodeBits - 1)          // 0x80000000
	ecCodeBot   = ecCodeTop >> ecSymBits         // 0x00800000
	ecCodeExtra = (ecCodeBits-2)%ecSymBits + 1   // 7
	ecUintBits  = 8                              // bits for range-coded unsigned integers
)
