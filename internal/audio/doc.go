// Package audio decodes base64 audio payloads received from clients. Payloads
// carry no format metadata, so the decoder guesses the sample layout by trying
// 16-bit PCM, then 32-bit float, then 8-bit PCM, and normalizes everything to
// float32 samples in [-1, 1].
package audio
