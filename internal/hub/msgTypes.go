package hub

const (
	ServerDeleted  = "ServerDeleted"
	ServerModified = "ServerModified"

	ChannelCreated  = "ChannelCreated"
	ChannelDeleted  = "ChannelDeleted"
	ChannelModified = "ChannelModified"

	CategoryModified = "CategoryModified"
	CategoryDeleted  = "CategoryDeleted"
)

// channel types a session can subscribe to
const (
	ChannelTypeServer     = "server"
	ChannelTypeServerList = "server_list"
	ChannelTypeCategories = "categories"
)
