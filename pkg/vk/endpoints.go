package vk

const (
	// MethodGetConversations lists the dialogs of the token owner
	MethodGetConversations = "messages.getConversations"

	// MethodGetHistoryAttachments lists media attached to one dialog
	MethodGetHistoryAttachments = "messages.getHistoryAttachments"

	// MaxPageSize is the largest count either list method accepts
	MaxPageSize = 200

	// MediaTypePhoto selects photo attachments
	MediaTypePhoto = "photo"
)

// clampCount keeps a requested page size within what VK accepts
func clampCount(count int) int {
	if count <= 0 || count > MaxPageSize {
		return MaxPageSize
	}
	return count
}
