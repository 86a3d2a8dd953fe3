package serializer

import (
	"context"
	"fmt"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

const (
	// ConfigMapManagedByLabel marks ConfigMaps written by rpctl.
	ConfigMapManagedByLabel = "app.kubernetes.io/managed-by"
	configMapManagedBy      = "rpctl"
	configMapTimestampKey   = "rpctl.gpuctl.io/updated-at"
)

// ParseConfigMapURI splits cm://namespace/name into its parts.
func ParseConfigMapURI(uri string) (namespace, name string, err error) {
	rest, ok := strings.CutPrefix(uri, ConfigMapURIScheme)
	if !ok {
		return "", "", fmt.Errorf("invalid ConfigMap URI %q: missing %s prefix", uri, ConfigMapURIScheme)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid ConfigMap URI %q: expected %snamespace/name", uri, ConfigMapURIScheme)
	}
	return parts[0], parts[1], nil
}

// ConfigMapWriter stores serialized output under a single data key of a ConfigMap.
type ConfigMapWriter struct {
	client    kubernetes.Interface
	namespace string
	name      string
	format    Format
}

// NewConfigMapWriter returns a writer targeting namespace/name.
func NewConfigMapWriter(cs kubernetes.Interface, namespace, name string, format Format) *ConfigMapWriter {
	if format.IsUnknown() {
		format = FormatJSON
	}
	return &ConfigMapWriter{client: cs, namespace: namespace, name: name, format: format}
}

// DataKey is the ConfigMap key the output is stored under.
func (w *ConfigMapWriter) DataKey() string {
	return "output." + w.format.Extension()
}

// Serialize creates the ConfigMap or replaces its output key.
func (w *ConfigMapWriter) Serialize(ctx context.Context, data any) error {
	b, err := Encode(w.format, data)
	if err != nil {
		return err
	}

	cms := w.client.CoreV1().ConfigMaps(w.namespace)
	now := time.Now().UTC().Format(time.RFC3339)

	existing, err := cms.Get(ctx, w.name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		cm := &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{
				Name:        w.name,
				Namespace:   w.namespace,
				Labels:      map[string]string{ConfigMapManagedByLabel: configMapManagedBy},
				Annotations: map[string]string{configMapTimestampKey: now},
			},
			Data: map[string]string{w.DataKey(): string(b)},
		}
		if _, err := cms.Create(ctx, cm, metav1.CreateOptions{}); err != nil {
			return fmt.Errorf("failed to create ConfigMap %s/%s: %w", w.namespace, w.name, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get ConfigMap %s/%s: %w", w.namespace, w.name, err)
	}

	updated := existing.DeepCopy()
	if updated.Data == nil {
		updated.Data = map[string]string{}
	}
	if updated.Annotations == nil {
		updated.Annotations = map[string]string{}
	}
	updated.Data[w.DataKey()] = string(b)
	updated.Annotations[configMapTimestampKey] = now

	if _, err := cms.Update(ctx, updated, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed to update ConfigMap %s/%s: %w", w.namespace, w.name, err)
	}
	return nil
}
