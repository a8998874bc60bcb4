package common

// WipeByteArray zeroes buf in place. Used on derived keys and decrypted
// secrets once they are no longer needed.
func WipeByteArray(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
