package models

// TextReply is returned by the text endpoint; the browser speaks it.
type TextReply struct {
	Text          string      `json:"text"`
	Transcript    string      `json:"transcript"`
	Results       QueryResult `json:"results"`
	BrowserSpeech bool        `json:"browserSpeech"`
	Message       string      `json:"message,omitempty"`
}

// VoiceReply is returned by the voice endpoint when no audio is produced,
// either in demo mode or after speech synthesis failed.
type VoiceReply struct {
	Text       string      `json:"text"`
	Transcript string      `json:"transcript"`
	Results    QueryResult `json:"results"`
	Demo       bool        `json:"demo,omitempty"`
	Message    string      `json:"message,omitempty"`
	Error      string      `json:"error,omitempty"`
	Details    string      `json:"details,omitempty"`
}
