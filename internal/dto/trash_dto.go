package dto

const (
	TrashActionDelete  = "delete"
	TrashActionRestore = "restore"
)

type TrashRequest struct {
	Action string        `json:"action" validate:"required"`
	Data   TrashNoteData `json:"data"`
}

type TrashNoteData struct {
	Id       string `json:"id" validate:"required,max=128,noteid"`
	ParentId string `json:"parentId" validate:"omitempty,max=128"`
}
