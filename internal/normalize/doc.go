// Package normalize turns a raw video file name into a clean title.
//
// Cleaning removes release noise (resolution, codec, source tags, bracketed
// groups, audio channel markers), strips the longest broadcaster name it can
// find and salvages names that a release group stored character-reversed.
// The result is title-cased and NFC-composed so the episode patterns see a
// predictable shape. Cleaning never fails; in the worst case the first token
// of the input survives.
package normalize
