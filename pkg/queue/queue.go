package queue

// Queue represents an ordered queue with a single consumer.
type Queue interface {
	Enqueue(item interface{}) error
	ReadAllMessages() ([]interface{}, error)
	Size() int
}
