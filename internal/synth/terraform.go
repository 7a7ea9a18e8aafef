package synth

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"
)

// hclFuncs are the helpers available to Terraform templates
var hclFuncs = template.FuncMap{
	"hclList": func(items []string) string {
		quoted := make([]string, len(items))
		for i, s := range items {
			quoted[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	},
}

// eksParams is the data record the EKS template renders from
type eksParams struct {
	Environment       string
	Region            string
	AZs               []string
	HA                bool
	AutoScaling       bool
	KubernetesVersion string
	InstanceType      string
	MinSize           int
	MaxSize           int
	DesiredSize       int
}

const eksTemplate = `# EKS cluster for the {{.Environment}} environment
terraform {
  required_version = ">= 1.5"

  required_providers {
    aws = {
      source  = "hashicorp/aws"
      version = "~> 5.0"
    }
  }
}

provider "aws" {
  region = var.region
}

variable "region" {
  description = "AWS region"
  type        = string
  default     = "{{.Region}}"
}

variable "cluster_name" {
  description = "EKS cluster name"
  type        = string
  default     = "iac-{{.Environment}}-cluster"
}

locals {
  tags = {
    Environment = "{{.Environment}}"
    ManagedBy   = "terraform"
  }
}

module "vpc" {
  source  = "terraform-aws-modules/vpc/aws"
  version = "~> 5.0"

  name = "${var.cluster_name}-vpc"
  cidr = "10.0.0.0/16"

  azs             = {{hclList .AZs}}
  private_subnets = ["10.0.1.0/24", "10.0.2.0/24", "10.0.3.0/24"]
  public_subnets  = ["10.0.101.0/24", "10.0.102.0/24", "10.0.103.0/24"]

  enable_nat_gateway     = true
  single_nat_gateway     = {{not .HA}}
  one_nat_gateway_per_az = {{.HA}}
  enable_dns_hostnames   = true

  public_subnet_tags = {
    "kubernetes.io/role/elb" = 1
  }

  private_subnet_tags = {
    "kubernetes.io/role/internal-elb" = 1
  }

  tags = local.tags
}

module "eks" {
  source  = "terraform-aws-modules/eks/aws"
  version = "~> 19.0"

  cluster_name    = var.cluster_name
  cluster_version = "{{.KubernetesVersion}}"

  vpc_id     = module.vpc.vpc_id
  subnet_ids = module.vpc.private_subnets

  cluster_endpoint_public_access  = true
  cluster_endpoint_private_access = true
  enable_irsa                     = true

  cluster_enabled_log_types = ["api", "audit", "authenticator", "controllerManager", "scheduler"]

  eks_managed_node_groups = {
    main = {
      min_size     = {{.MinSize}}
      max_size     = {{.MaxSize}}
      desired_size = {{.DesiredSize}}

      instance_types = ["{{.InstanceType}}"]
      capacity_type  = "ON_DEMAND"

      labels = {
        Environment = "{{.Environment}}"
      }
{{- if .AutoScaling}}

      tags = {
        "k8s.io/cluster-autoscaler/enabled"             = "true"
        "k8s.io/cluster-autoscaler/${var.cluster_name}" = "owned"
      }
{{- end}}
    }
  }

  tags = local.tags
}

output "cluster_endpoint" {
  description = "EKS API server endpoint"
  value       = module.eks.cluster_endpoint
}

output "cluster_name" {
  description = "EKS cluster name"
  value       = module.eks.cluster_name
}

output "configure_kubectl" {
  description = "Command to point kubectl at the cluster"
  value       = "aws eks update-kubeconfig --region ${var.region} --name ${module.eks.cluster_name}"
}
`

// rdsParams is the data record the RDS template renders from
type rdsParams struct {
	Environment         string
	Region              string
	Identifier          string
	InstanceClass       string
	EngineVersion       string
	StorageGB           int
	MaxStorageGB        int
	MultiAZ             bool
	BackupRetentionDays int
	DeletionProtection  bool
	SkipFinalSnapshot   bool
}

const rdsTemplate = `# PostgreSQL on Amazon RDS for the {{.Environment}} environment
terraform {
  required_version = ">= 1.5"

  required_providers {
    aws = {
      source  = "hashicorp/aws"
      version = "~> 5.0"
    }
  }
}

provider "aws" {
  region = var.region
}

variable "region" {
  description = "AWS region"
  type        = string
  default     = "{{.Region}}"
}

variable "vpc_id" {
  description = "VPC the database is placed in"
  type        = string
}

variable "subnet_ids" {
  description = "Private subnets for the DB subnet group"
  type        = list(string)
}

variable "db_name" {
  description = "Initial database name"
  type        = string
  default     = "appdb"
}

locals {
  tags = {
    Environment = "{{.Environment}}"
    ManagedBy   = "terraform"
  }
}

resource "aws_db_subnet_group" "main" {
  name       = "{{.Identifier}}-subnets"
  subnet_ids = var.subnet_ids

  tags = local.tags
}

resource "aws_security_group" "database" {
  name        = "{{.Identifier}}-sg"
  description = "PostgreSQL access from inside the VPC"
  vpc_id      = var.vpc_id

  ingress {
    description = "PostgreSQL"
    from_port   = 5432
    to_port     = 5432
    protocol    = "tcp"
    cidr_blocks = ["10.0.0.0/16"]
  }

  egress {
    from_port   = 0
    to_port     = 0
    protocol    = "-1"
    cidr_blocks = ["0.0.0.0/0"]
  }

  tags = local.tags
}

resource "aws_db_instance" "main" {
  identifier     = "{{.Identifier}}"
  engine         = "postgres"
  engine_version = "{{.EngineVersion}}"
  instance_class = "{{.InstanceClass}}"

  allocated_storage     = {{.StorageGB}}
  max_allocated_storage = {{.MaxStorageGB}}
  storage_type          = "gp3"
  storage_encrypted     = true

  db_name                     = var.db_name
  username                    = "dbadmin"
  manage_master_user_password = true

  db_subnet_group_name   = aws_db_subnet_group.main.name
  vpc_security_group_ids = [aws_security_group.database.id]

  multi_az                = {{.MultiAZ}}
  backup_retention_period = {{.BackupRetentionDays}}
  backup_window           = "03:00-04:00"
  maintenance_window      = "sun:04:00-sun:05:00"

  enabled_cloudwatch_logs_exports = ["postgresql", "upgrade"]

  deletion_protection = {{.DeletionProtection}}
  skip_final_snapshot = {{.SkipFinalSnapshot}}
{{- if not .SkipFinalSnapshot}}
  final_snapshot_identifier = "{{.Identifier}}-final"
{{- end}}

  tags = local.tags
}

output "db_endpoint" {
  description = "Connection endpoint"
  value       = aws_db_instance.main.endpoint
}

output "db_master_secret_arn" {
  description = "Secrets Manager ARN holding the master credentials"
  value       = aws_db_instance.main.master_user_secret[0].secret_arn
}
`

var (
	eksTmpl = template.Must(template.New("eks").Funcs(hclFuncs).Parse(eksTemplate))
	rdsTmpl = template.Must(template.New("rds").Funcs(hclFuncs).Parse(rdsTemplate))
)

func renderTerraform(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute %s template: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
