package service

import (
	"math"
)

// 砌墙估算系数。按标准砖与常规灰缝取值，配比决定砂浆中砂石水泥的分摊。
const (
	BricksPerSquareMeter = 60.0 // 每平米墙面标准砖用量
	MortarPerSquareMeter = 0.03 // 每平米墙面砂浆体积（立方米）
)

// WallEstimateInput 砌墙估算输入
type WallEstimateInput struct {
	WallLength        float64
	WallHeight        float64
	SandMixingRatio   float64
	CementMixingRatio float64
	StoneMixingRatio  float64
}

// WallEstimate 砌墙估算结果
type WallEstimate struct {
	BrickQuantity int
	SandVolume    float64
	StoneVolume   float64
	CementVolume  float64
}

// EstimateWallMaterials 由墙体几何尺寸与砂浆配比推算四种基础物料用量。
// 纯函数，同样输入必得同样输出。
func EstimateWallMaterials(in WallEstimateInput) WallEstimate {
	area := in.WallLength * in.WallHeight
	if area <= 0 {
		return WallEstimate{}
	}

	mortar := area * MortarPerSquareMeter
	ratioSum := in.SandMixingRatio + in.CementMixingRatio + in.StoneMixingRatio

	est := WallEstimate{
		BrickQuantity: int(math.Ceil(area * BricksPerSquareMeter)),
	}
	if ratioSum > 0 {
		est.SandVolume = mortar * in.SandMixingRatio / ratioSum
		est.CementVolume = mortar * in.CementMixingRatio / ratioSum
		est.StoneVolume = mortar * in.StoneMixingRatio / ratioSum
	}
	return est
}
