package state

import "github.com/dmitrijs2005/skydrive/internal/models"

// TaskList is the upload task collection in submission order.
type TaskList = []models.UploadTask

type TaskStore = Store[TaskList]

func NewTaskStore() *TaskStore {
	return NewStore[TaskList](TaskList{})
}

// AddTasks returns a new list with tasks appended.
func AddTasks(list TaskList, tasks ...models.UploadTask) TaskList {
	out := make(TaskList, 0, len(list)+len(tasks))
	out = append(out, list...)
	return append(out, tasks...)
}

// ModifyTask returns a new list with fn applied to the task with id.
func ModifyTask(list TaskList, id string, fn func(*models.UploadTask)) TaskList {
	for i := range list {
		if list[i].ID != id {
			continue
		}
		out := make(TaskList, len(list))
		copy(out, list)
		fn(&out[i])
		return out
	}
	return list
}

// RemoveTask returns a new list without the task with id.
func RemoveTask(list TaskList, id string) TaskList {
	out := make(TaskList, 0, len(list))
	for _, t := range list {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// FindTask returns a copy of the task with id.
func FindTask(list TaskList, id string) (models.UploadTask, bool) {
	for _, t := range list {
		if t.ID == id {
			return t, true
		}
	}
	return models.UploadTask{}, false
}
