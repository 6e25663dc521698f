package config

type StorageKeyStruct struct {
	User               string
	Token              string
	SubmissionsCleared string
}

// StorageKey names the fixed keys persisted between runs.
var StorageKey = &StorageKeyStruct{
	User:               "examTesterUser",
	Token:              "examTesterToken",
	SubmissionsCleared: "teacher_submissions_cleared",
}
