package config

type WorkerKeyStruct struct {
	AlertQueue       string
	AlertDeadLetters string
}

var WorkerKey = &WorkerKeyStruct{
	AlertQueue:       "alert_email_queue",
	AlertDeadLetters: "alert_email_dead_letters",
}
