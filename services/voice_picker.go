package services

import (
	"crypto/sha1"
	"encoding/binary"
	"strings"
)

const defaultVoiceID = "pNInz6obpgDQGcFmaJgB" // Adam

// Stock ElevenLabs voices per gender
var femaleVoices = []string{
	"EXAVITQu4vr4xnSDxMaL", // Rachel
	"21m00Tcm4TlvDq8ikWAM", // Domi
	"AZnzlk1XvdvUeBnXmlld", // Bella
	"ErXwobaYiN019PkySvjV", // Elli
	"MF3mGyEYCl7XYWbV9V6O", // Dorothy
}

var maleVoices = []string{
	defaultVoiceID,
	"TxGEqnHWrfWFTfGW9XjX", // Antoni
	"VR6AewLTigWG4xSOukaG", // Josh
	"yoZ06aMxZJJ28mfd3POQ", // Arnold
	"bVMeCyTHy58xNoL34h3p", // Clyde
}

func voicePool(gender string) []string {
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case "female":
		return femaleVoices
	case "male":
		return maleVoices
	}
	pool := make([]string, 0, len(femaleVoices)+len(maleVoices))
	pool = append(pool, femaleVoices...)
	return append(pool, maleVoices...)
}

// PickSessionVoice maps an interview session to a stable voice. Any gender other
// than male or female draws from both pools.
func PickSessionVoice(sessionID, gender string) string {
	pool := voicePool(gender)
	sum := sha1.Sum([]byte(strings.ToLower(sessionID)))
	idx := binary.BigEndian.Uint16(sum[:2]) % uint16(len(pool))
	return pool[idx]
}
