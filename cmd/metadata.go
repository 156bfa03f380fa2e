package main

import "net/http"

type language struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

var languages = []language{
	{"Hindi", "🇮🇳"},
	{"English", "🇬🇧"},
	{"Punjabi", "🎵"},
	{"Tamil", "🎶"},
	{"Telugu", "🎼"},
	{"Bengali", "🎹"},
	{"Marathi", "🎸"},
	{"Kannada", "🎺"},
	{"Malayalam", "🎻"},
	{"Gujarati", "🪕"},
	{"Bhojpuri", "🥁"},
	{"Korean", "🇰🇷"},
	{"Japanese", "🇯🇵"},
	{"Spanish", "🇪🇸"},
}

// featured artists offered during onboarding
var featuredArtists = []string{
	"Arijit Singh", "Shreya Ghoshal", "Atif Aslam", "Neha Kakkar", "Jubin Nautiyal",
	"AR Rahman", "Honey Singh", "Badshah", "Armaan Malik", "Darshan Raval",
	"Sid Sriram", "Diljit Dosanjh", "Guru Randhawa", "Imagine Dragons", "Ed Sheeran",
	"Taylor Swift", "The Weeknd", "BTS", "Drake", "Billie Eilish",
	"Dua Lipa", "Coldplay", "Eminem", "Justin Bieber",
}

func metadataLanguages(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, languages)
}

func metadataArtists(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, featuredArtists)
}
