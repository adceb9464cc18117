package api

type Sender interface {
	SendToTopic(topic Topic)
	SendCommandToTopic(topic Topic, command interface{})
	SendError(message string, err error)
}
