// 文件: pkg/runid/runid.go
// 定价运行 ID 生成器 (雪花算法)
// 使用开源库: github.com/bwmarrin/snowflake

package runid

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node     *snowflake.Node
	nodeErr  error
	initOnce sync.Once
)

// Init 初始化雪花节点，只有第一次调用生效
// nodeID: 节点ID (0-1023)，多实例部署时每个实例一个
func Init(nodeID int64) error {
	initOnce.Do(func() {
		node, nodeErr = snowflake.NewNode(nodeID)
	})
	return nodeErr
}

// Next 生成一个运行 ID
// 未初始化时使用节点 0
func Next() int64 {
	if err := Init(0); err != nil || node == nil {
		return 0
	}
	return node.Generate().Int64()
}

// String 运行 ID 的 base36 形式，用作消息 key
func String(id int64) string {
	return snowflake.ID(id).Base36()
}
