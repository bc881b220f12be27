package detection

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// YOLOConfig holds YOLO detector configuration.
type YOLOConfig struct {
	ModelPath        string
	ConfidenceThresh float32 // floor applied before NMS
	NMSThresh        float32
	InputWidth       int // square network input
	InputHeight      int
	DetectWidth      int // frames are downscaled to this width before inference
}

// DefaultYOLOConfig returns production defaults for YOLOv8n.
func DefaultYOLOConfig() YOLOConfig {
	return YOLOConfig{
		ModelPath:        "models/yolov8n.onnx",
		ConfidenceThresh: 0.5,
		NMSThresh:        0.45,
		InputWidth:       640,
		InputHeight:      640,
		DetectWidth:      640,
	}
}

// YOLO runs YOLOv8 object detection through gocv's DNN module.
// Inference is serialized; the detector is a shared resource.
type YOLO struct {
	net       gocv.Net
	config    YOLOConfig
	mu        sync.Mutex
	inputSize image.Point
}

// NewYOLO loads the ONNX model. A missing model file is a startup error:
// the system refuses to run with a disabled detector.
func NewYOLO(cfg YOLOConfig) (*YOLO, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("detection: model file not found: %s", cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("detection: failed to load model from %s", cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &YOLO{
		net:       net,
		config:    cfg,
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
	}, nil
}

// Detect finds objects in the JPEG frame. The frame is downscaled to
// DetectWidth preserving aspect ratio; reported boxes live in that
// downscaled space, with the actual dimensions carried in the Result.
func (d *YOLO) Detect(jpeg []byte) (Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return Result{}, fmt.Errorf("detection: decode frame: %w", err)
	}
	defer img.Close()

	if img.Empty() || img.Cols() == 0 {
		return Result{}, fmt.Errorf("detection: empty frame")
	}

	srcW, srcH := img.Cols(), img.Rows()

	detW := d.config.DetectWidth
	detH := srcH * detW / srcW

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(img, &small, image.Pt(detW, detH), 0, 0, gocv.InterpolationLinear)

	blob := gocv.BlobFromImage(small, 1.0/255.0, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	output := d.net.Forward("")
	defer output.Close()

	dets := d.parseOutput(output, float32(detW), float32(detH))

	return Result{
		Detections: dets,
		Width:      detW,
		Height:     detH,
		SrcWidth:   srcW,
		SrcHeight:  srcH,
	}, nil
}

// parseOutput parses the YOLOv8 output tensor into detection-space boxes.
// Output shape: [1, 84, 8400] - 4 bbox values plus 80 class scores per
// candidate.
func (d *YOLO) parseOutput(output gocv.Mat, detW, detH float32) []Detection {
	var boxes []image.Rectangle
	var confidences []float32
	var classIDs []int

	rows := output.Cols() // 8400 candidates
	cols := output.Rows() // 84

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil
	}

	for i := 0; i < rows; i++ {
		maxScore := float32(0)
		maxClassID := 0
		for c := 4; c < cols; c++ {
			if score := data[c*rows+i]; score > maxScore {
				maxScore = score
				maxClassID = c - 4
			}
		}
		if maxScore < d.config.ConfidenceThresh {
			continue
		}

		cx := data[0*rows+i]
		cy := data[1*rows+i]
		w := data[2*rows+i]
		h := data[3*rows+i]

		// Network space back to detection space.
		x1 := int((cx - w/2) * detW / float32(d.config.InputWidth))
		y1 := int((cy - h/2) * detH / float32(d.config.InputHeight))
		x2 := int((cx + w/2) * detW / float32(d.config.InputWidth))
		y2 := int((cy + h/2) * detH / float32(d.config.InputHeight))

		boxes = append(boxes, image.Rect(x1, y1, x2, y2))
		confidences = append(confidences, maxScore)
		classIDs = append(classIDs, maxClassID)
	}

	if len(boxes) == 0 {
		return nil
	}

	indices := gocv.NMSBoxes(boxes, confidences, d.config.ConfidenceThresh, d.config.NMSThresh)

	var dets []Detection
	for _, idx := range indices {
		box := boxes[idx]
		dets = append(dets, Detection{
			Box: Box{
				X1: float64(box.Min.X),
				Y1: float64(box.Min.Y),
				X2: float64(box.Max.X),
				Y2: float64(box.Max.Y),
			},
			Confidence: float64(confidences[idx]),
			ClassID:    classIDs[idx],
			ClassName:  COCOClasses[classIDs[idx]],
		})
	}
	return dets
}

// Close releases the detector resources.
func (d *YOLO) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// COCOClasses contains the 80 COCO class names.
var COCOClasses = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator",
	"book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

// ClassID returns the COCO id for a class name, or -1 if unknown.
func ClassID(name string) int {
	for i, c := range COCOClasses {
		if c == name {
			return i
		}
	}
	return -1
}
