package config

type WorkerKeyStruct struct {
	CleanupApplyQueue string
}

var WorkerKey = &WorkerKeyStruct{
	CleanupApplyQueue: "cleanup_apply_queue",
}
